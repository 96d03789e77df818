package turbine

import (
	"github.com/norasector/turbine-p25/pkg/turbine/config"
	"github.com/norasector/turbine-p25/pkg/turbine/device"
)

type Options struct {
	Inputs  []Input
	AGC     config.AGC
	Outputs []MessageOutput
}

// Input is a channel together with the device that feeds it.
type Input struct {
	config.Channel
	Device device.Device
}
