package presence

// Fixed palettes for freshly minted identities.

var displayNames = []string{
	"Heron", "Otter", "Lynx", "Magpie", "Badger",
	"Kestrel", "Marten", "Plover", "Stoat", "Wren",
}

var userColors = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#008080", "#9a6324", "#800000",
}
