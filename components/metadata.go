package components

// String returns the display name for a Tag.
func (t Tag) String() string {
	names := TagNames()
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// TagNames returns the display names for all tags.
// The order matches the Tag constants.
func TagNames() []string {
	return []string{"none", "nectar", "petal", "boundary", "agent"}
}

// String returns the display name for an Indicator.
func (i Indicator) String() string {
	if i == IndicatorEmpty {
		return "empty"
	}
	return "full"
}
