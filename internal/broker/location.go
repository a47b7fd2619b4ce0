package broker

// locationKind discriminates the Location variants.
type locationKind uint8

const (
	kindNowhere locationKind = iota
	kindChannel
	kindGame
)

// Location is where a user currently sits: a channel, a game lobby, or
// nowhere (the brief window between login and the default channel).
// Values built through the constructors compare with == regardless of
// where they were produced; the name is always the owning record's
// display form.
type Location struct {
	kind locationKind
	name string
}

// NowhereLocation returns the location of a user not yet placed anywhere.
func NowhereLocation() Location {
	return Location{kind: kindNowhere}
}

// ChannelLocation returns the location of the named channel.
func ChannelLocation(name string) Location {
	return Location{kind: kindChannel, name: name}
}

// GameLocation returns the location of the named game lobby.
func GameLocation(name string) Location {
	return Location{kind: kindGame, name: name}
}

// IsNowhere reports whether the user has no location.
func (l Location) IsNowhere() bool {
	return l.kind == kindNowhere
}

// String renders the location the way it appears in command parameters:
// "#name" for channels, "$name" for games, "[nowhere]" otherwise.
func (l Location) String() string {
	switch l.kind {
	case kindChannel:
		return "#" + l.name
	case kindGame:
		return "$" + l.name
	default:
		return "[nowhere]"
	}
}
