// Package topology enumerates the static set of endpoint names and the
// protocol header space. The raw topology is a configuration input, not a
// compiled constant, but the names below are the default wiring used by
// cmd/*.
package topology

// Endpoint names. Character set: [A-Za-z0-9_]+.
const (
	Marshal       = "marshal"
	Replica       = "replica"
	Display       = "display"
	Miscellaneous = "miscellaneous"
	Motor         = "motor"
	PowerSensor   = "power_sensor"
	Telemeter     = "telemeter"
	Voltage       = "voltage"
)

// Soldiers lists every peripheral endpoint in the default topology,
// excluding Marshal and Replica.
var Soldiers = []string{Display, Miscellaneous, Motor, PowerSensor, Telemeter, Voltage}

// All lists every endpoint in the default topology.
func All() []string {
	all := make([]string, 0, len(Soldiers)+2)
	all = append(all, Marshal, Replica)
	all = append(all, Soldiers...)
	return all
}

// Header is a protocol verb understood by the built-in dispatch table.
type Header = string

// Header space (protocol verbs). Every endpoint must agree on the exact
// strings.
const (
	HeaderStatus    Header = "status"
	HeaderGet       Header = "get"
	HeaderRead      Header = "read"
	HeaderSet       Header = "set"
	HeaderWrite     Header = "write"
	HeaderReset     Header = "reset"
	HeaderResponse  Header = "response"
	HeaderSync      Header = "sync"
	HeaderHang      Header = "hang"
	HeaderExit      Header = "exit"
	HeaderAbort     Header = "abort"
	HeaderHeartbeat Header = "heartbeat"

	// Domain verbs used by the peripheral controllers.
	HeaderGPIO  Header = "gpio"
	HeaderPWM   Header = "pwm"
	HeaderSPI   Header = "spi"
	HeaderUART  Header = "uart"
	HeaderState Header = "state"
	HeaderData  Header = "data"
)

// QueueName returns the host-local queue name for endpoint: "/" followed
// by the endpoint name.
func QueueName(endpoint string) string {
	return "/" + endpoint
}
