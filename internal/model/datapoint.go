package model

// Data point indices of a metering smart plug. The device reports them as
// decimal strings once the payload is canonicalized.
const (
	DPSwitch  = "1"
	DPCurrent = "18"
	DPPower   = "19"
	DPVoltage = "20"
)

// VoltageRawThreshold separates devices reporting decivolts from those
// reporting volts. Strictly greater values are divided by 10.
const VoltageRawThreshold = 1000.0

const (
	VoltageDivisor = 10.0
	PowerDivisor   = 10.0
	CurrentDivisor = 1000.0
)
