package mqtt

import "fmt"

// Topic prefixes for the Hearth MQTT hierarchy.
//
// The hub bridge (the process that owns the actual HomeKit/hardware session)
// publishes inventory and command results under hearth/hub; the core
// publishes its own events under hearth/core.
const (
	// TopicPrefix is the base for all Hearth topics.
	TopicPrefix = "hearth"

	// TopicPrefixHub is the base for hub bridge topics.
	TopicPrefixHub = "hearth/hub"

	// TopicPrefixCore is the base for core topics.
	TopicPrefixCore = "hearth/core"
)

// Topics provides builders for Hearth MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("light-office")
//	// Returns: "hearth/hub/device/light-office/set"
type Topics struct{}

// HubDevices returns the retained device inventory topic.
//
// Example: hearth/hub/devices
func (Topics) HubDevices() string {
	return fmt.Sprintf("%s/devices", TopicPrefixHub)
}

// HubScenes returns the retained scene inventory topic.
//
// Example: hearth/hub/scenes
func (Topics) HubScenes() string {
	return fmt.Sprintf("%s/scenes", TopicPrefixHub)
}

// HubStatus returns the hub availability topic (birth/LWT).
//
// Example: hearth/hub/status
func (Topics) HubStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixHub)
}

// DeviceCommand returns the topic for state commands to a device.
//
// Example: hearth/hub/device/light-office/set
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/set", TopicPrefixHub, deviceID)
}

// SceneExecute returns the topic for scene execution commands.
//
// Example: hearth/hub/scene/movie-night/execute
func (Topics) SceneExecute(sceneID string) string {
	return fmt.Sprintf("%s/scene/%s/execute", TopicPrefixHub, sceneID)
}

// CommandResult returns the per-request result topic. Each command carries a
// generated request id; the hub publishes exactly one result message here.
//
// Example: hearth/hub/result/req-abc123
func (Topics) CommandResult(requestID string) string {
	return fmt.Sprintf("%s/result/%s", TopicPrefixHub, requestID)
}

// AllCommandResults returns a pattern matching every command result.
//
// Pattern: hearth/hub/result/+
func (Topics) AllCommandResults() string {
	return fmt.Sprintf("%s/result/+", TopicPrefixHub)
}

// CoreEvent returns the topic for core events.
//
// Example: hearth/core/event/devices.updated
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// CoreStatus returns the core availability topic.
//
// Example: hearth/core/status
func (Topics) CoreStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixCore)
}
