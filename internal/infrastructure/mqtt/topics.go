package mqtt

import "fmt"

// Topic prefixes for the Brewblox event bus.
const (
	// TopicPrefixState is the base for retained state topics.
	TopicPrefixState = "brewcast/state"

	// TopicPrefixHistory is the base for history topics consumed by the history service.
	TopicPrefixHistory = "brewcast/history"

	// TopicPrefixTilt is the base for topics owned by Tilt services.
	TopicPrefixTilt = "brewcast/tilt"

	// TopicBlockPatch is the shared topic for patching Spark blocks.
	TopicBlockPatch = "brewcast/spark/blocks/patch"
)

// Topics provides builders for the topics of one named service.
//
//	topics := mqtt.NewTopics("tilt")
//	topics.DeviceState("Red", "AA7F97FC141E")
//	// Returns: "brewcast/state/tilt/Red/AA7F97FC141E"
type Topics struct {
	service string
}

// NewTopics returns topic builders for the named service.
func NewTopics(service string) Topics {
	return Topics{service: service}
}

// Service returns the service name the topics are built for.
func (t Topics) Service() string {
	return t.service
}

// ServiceState returns the retained presence topic of the service.
//
// Example: brewcast/state/tilt
func (t Topics) ServiceState() string {
	return fmt.Sprintf("%s/%s", TopicPrefixState, t.service)
}

// DeviceState returns the retained state topic of one Tilt.
//
// Example: brewcast/state/tilt/Red/AA7F97FC141E
func (t Topics) DeviceState(color, mac string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefixState, t.service, color, mac)
}

// AllDeviceStates returns a pattern matching every device state of the service.
//
// Pattern: brewcast/state/tilt/+/+
func (t Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/%s/+/+", TopicPrefixState, t.service)
}

// History returns the history topic of the service.
//
// Example: brewcast/history/tilt
func (t Topics) History() string {
	return fmt.Sprintf("%s/%s", TopicPrefixHistory, t.service)
}

// Names returns the topic on which name overrides are received.
//
// Example: brewcast/tilt/tilt/names
func (t Topics) Names() string {
	return fmt.Sprintf("%s/%s/names", TopicPrefixTilt, t.service)
}

// Status returns the connection status topic used for the Last Will.
//
// Example: brewcast/tilt/tilt/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixTilt, t.service)
}

// BlockPatch returns the Spark block patch topic.
func (Topics) BlockPatch() string {
	return TopicBlockPatch
}
