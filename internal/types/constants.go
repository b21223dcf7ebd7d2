// Package types provides type-safe constants for the launcher's update system.
//
// This package centralizes the enumerated types shared by the registry, the
// orchestrator and the CLI, replacing magic strings with typed constants that
// provide compile-time safety and validation methods.
//
// SYNC REQUIREMENT: These types must stay in sync with:
//   - internal/update/registry.go (DefaultEndpoints must be total over AllChannels)
//   - internal/config/validate.go (runtime validation)
package types

import (
	"fmt"
	"strings"
)

// Channel names a release stream of the client or the launcher.
type Channel string

const (
	// ChannelMain is the stable client channel.
	ChannelMain Channel = "main"
	// ChannelDev is the bleeding-edge client channel.
	ChannelDev Channel = "dev"
	// ChannelLauncherSelf is the launcher's own release stream.
	ChannelLauncherSelf Channel = "launcher-self"
	// ChannelLegacy is the frozen legacy client channel.
	ChannelLegacy Channel = "legacy"
)

// AllChannels returns all valid channels in fetch order.
func AllChannels() []Channel {
	return []Channel{ChannelMain, ChannelDev, ChannelLauncherSelf, ChannelLegacy}
}

// ClientChannels returns the channels that publish client builds.
func ClientChannels() []Channel {
	return []Channel{ChannelMain, ChannelDev, ChannelLegacy}
}

// Validate checks if the Channel is a valid value.
func (c Channel) Validate() error {
	switch c {
	case ChannelMain, ChannelDev, ChannelLauncherSelf, ChannelLegacy:
		return nil
	case "":
		return fmt.Errorf("channel is required")
	default:
		return fmt.Errorf("invalid channel '%s' (must be main, dev, launcher-self, or legacy)", c)
	}
}

// String returns the string representation of the Channel.
func (c Channel) String() string {
	return string(c)
}

// IsClient returns true if the channel publishes client builds.
func (c Channel) IsClient() bool {
	return c == ChannelMain || c == ChannelDev || c == ChannelLegacy
}

// IsLauncher returns true if the channel is the launcher's own stream.
func (c Channel) IsLauncher() bool {
	return c == ChannelLauncherSelf
}

// Target returns the install target fed by this channel.
func (c Channel) Target() Target {
	if c.IsLauncher() {
		return TargetLauncher
	}
	return TargetClient
}

// ChangelogBranch returns the repository branch whose CHANGELOG.md
// describes this channel.
func (c Channel) ChangelogBranch() string {
	switch c {
	case ChannelMain:
		return "main"
	case ChannelLegacy:
		return "legacy"
	default:
		return "dev"
	}
}

// ParseChannel parses a string into a Channel.
// Accepts "launcher" and "bleeding-edge" as aliases.
func ParseChannel(s string) (Channel, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "launcher", "self":
		normalized = string(ChannelLauncherSelf)
	case "bleeding-edge", "bleedingedge":
		normalized = string(ChannelDev)
	case "stable":
		normalized = string(ChannelMain)
	}
	c := Channel(normalized)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Target identifies what an update job installs.
type Target string

const (
	// TargetClient is the game client installed next to the launcher.
	TargetClient Target = "client"
	// TargetLauncher is the running launcher itself.
	TargetLauncher Target = "launcher"
)

// AllTargets returns all valid targets.
func AllTargets() []Target {
	return []Target{TargetClient, TargetLauncher}
}

// Validate checks if the Target is a valid value.
func (t Target) Validate() error {
	switch t {
	case TargetClient, TargetLauncher:
		return nil
	case "":
		return fmt.Errorf("target is required")
	default:
		return fmt.Errorf("invalid target '%s' (must be client or launcher)", t)
	}
}

// String returns the string representation of the Target.
func (t Target) String() string {
	return string(t)
}

// IsClient returns true if the target is the client.
func (t Target) IsClient() bool {
	return t == TargetClient
}

// IsLauncher returns true if the target is the launcher.
func (t Target) IsLauncher() bool {
	return t == TargetLauncher
}

// DefaultChannel returns the channel used when none is given.
func (t Target) DefaultChannel() Channel {
	if t.IsLauncher() {
		return ChannelLauncherSelf
	}
	return ChannelMain
}

// ParseTarget parses a string into a Target.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// JobState is the lifecycle position of an update lane.
type JobState string

const (
	StateIdle            JobState = "idle"
	StateChecking        JobState = "checking"
	StateUpdateAvailable JobState = "update-available"
	StateDownloading     JobState = "downloading"
	StateInstalling      JobState = "installing"
	StateReady           JobState = "ready"
	StateFailed          JobState = "failed"
)

// AllJobStates returns all job states in lifecycle order.
func AllJobStates() []JobState {
	return []JobState{
		StateIdle, StateChecking, StateUpdateAvailable,
		StateDownloading, StateInstalling, StateReady, StateFailed,
	}
}

// String returns the string representation of the JobState.
func (s JobState) String() string {
	return string(s)
}

// IsActive returns true while a job owns the lane.
func (s JobState) IsActive() bool {
	return s == StateDownloading || s == StateInstalling
}

// IsTerminal returns true for states a job ends in.
func (s JobState) IsTerminal() bool {
	return s == StateReady || s == StateFailed
}
