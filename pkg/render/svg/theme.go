package svg

// Theme holds the colours and font of a rendered chart.
type Theme struct {
	Link       string
	Arrow      string
	RootFill   string
	RootStroke string
	RootText   string
	NodeFill   string
	NodeStroke string
	NodeText   string
	Button     string
	ButtonText string
	FontFamily string
}

// DefaultTheme is the blue-on-white chart look.
var DefaultTheme = Theme{
	Link:       "#7A9EFF",
	Arrow:      "#215af3",
	RootFill:   "#7A9EFF",
	RootStroke: "#5682ec",
	RootText:   "#FFFFFF",
	NodeFill:   "#FFFFFF",
	NodeStroke: "#7A9EFF",
	NodeText:   "#000000",
	Button:     "#7A9EFF",
	ButtonText: "#ffffff",
	FontFamily: "sans-serif",
}

// DarkTheme suits dark host pages.
var DarkTheme = Theme{
	Link:       "#8aa4e8",
	Arrow:      "#a8bdf5",
	RootFill:   "#3b5bdb",
	RootStroke: "#8aa4e8",
	RootText:   "#FFFFFF",
	NodeFill:   "#1e1e2e",
	NodeStroke: "#8aa4e8",
	NodeText:   "#e0e0e0",
	Button:     "#3b5bdb",
	ButtonText: "#ffffff",
	FontFamily: "sans-serif",
}

// Themes maps theme names accepted on the command line.
var Themes = map[string]Theme{
	"default": DefaultTheme,
	"dark":    DarkTheme,
}
