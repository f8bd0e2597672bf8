package engine

// JSON-RPC method names served by the engine.
const (
	ServiceName            = "Engine"
	MethodPauseAll         = ServiceName + ".PauseAll"
	MethodResumeAll        = ServiceName + ".ResumeAll"
	MethodGetPortStats     = ServiceName + ".GetPortStats"
	MethodGetRtt           = ServiceName + ".GetRtt"
	MethodUpdateTc         = ServiceName + ".UpdateTc"
	MethodUpdateModule     = ServiceName + ".UpdateModule"
	updateModuleArgPps     = "pps"
	defaultRPCTimeoutMilli = 2000
)

// PortArg is the argument of port-related methods.
type PortArg struct {
	Port string `json:"port"`
}

// UpdateTcArgs is the argument of Engine.UpdateTc method.
type UpdateTcArgs struct {
	Name     TrafficClass        `json:"name"`
	Resource Resource            `json:"resource"`
	Limit    map[Resource]uint64 `json:"limit"`
}

// UpdateModuleArgs is the argument of Engine.UpdateModule method.
type UpdateModuleArgs struct {
	Name ModuleHandle       `json:"name"`
	Arg  map[string]float64 `json:"arg"`
}

// Pps returns the pps parameter, or zero if absent.
func (a UpdateModuleArgs) Pps() float64 {
	return a.Arg[updateModuleArgPps]
}
