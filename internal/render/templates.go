package render

// ---------------------------------------------------------------------------
// Template catalog — the fixed set of visual styles selectable per render.
// Unknown template IDs resolve to "default".
// ---------------------------------------------------------------------------

// Template describes how scene text is styled and what backs the frame when
// no image is available for a scene.
type Template struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	FontSize        int     `json:"font_size"`
	FontColor       string  `json:"font_color"`
	ShadowColor     string  `json:"shadow_color,omitempty"`
	Position        string  `json:"position"` // "top", "center" or "bottom"
	BackgroundColor string  `json:"background_color"`
	OverlayOpacity  float64 `json:"overlay_opacity,omitempty"`
}

var templates = map[string]Template{
	"default": {
		ID:              "default",
		Name:            "Default",
		Description:     "Clean centered captions on a dark backdrop",
		FontSize:        48,
		FontColor:       "white",
		ShadowColor:     "black",
		Position:        "center",
		BackgroundColor: "#1a1a2e",
		OverlayOpacity:  0.3,
	},
	"modern": {
		ID:              "modern",
		Name:            "Modern",
		Description:     "Bold lower-third captions with heavy contrast",
		FontSize:        56,
		FontColor:       "#f8f8f2",
		ShadowColor:     "#282a36",
		Position:        "bottom",
		BackgroundColor: "#0f0f23",
		OverlayOpacity:  0.4,
	},
	"tech": {
		ID:              "tech",
		Name:            "Tech",
		Description:     "Terminal-green captions over deep navy",
		FontSize:        44,
		FontColor:       "#00ff9f",
		ShadowColor:     "#003322",
		Position:        "center",
		BackgroundColor: "#0a192f",
		OverlayOpacity:  0.35,
	},
	"elegant": {
		ID:              "elegant",
		Name:            "Elegant",
		Description:     "Soft serif-feel captions near the top of frame",
		FontSize:        42,
		FontColor:       "#f5e6ca",
		ShadowColor:     "#2c1810",
		Position:        "top",
		BackgroundColor: "#1c1412",
		OverlayOpacity:  0.25,
	},
}

// templateOrder fixes catalog listing order for the API.
var templateOrder = []string{"default", "modern", "tech", "elegant"}

// TemplateByID resolves a template, falling back to default for unknown IDs.
func TemplateByID(id string) Template {
	if t, ok := templates[id]; ok {
		return t
	}
	return templates["default"]
}

// Templates returns the catalog in stable order.
func Templates() []Template {
	out := make([]Template, 0, len(templateOrder))
	for _, id := range templateOrder {
		out = append(out, templates[id])
	}
	return out
}

// ---------------------------------------------------------------------------
// Voice catalog — what the /v1/voices endpoint lists.
// ---------------------------------------------------------------------------

// Voice is one selectable narration voice.
type Voice struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// Voices returns the fixed voice catalog. gTTS entries are language codes;
// OpenAI entries are the tts-1 voice names.
func Voices() []Voice {
	return []Voice{
		{Provider: "gtts", ID: "en", Name: "English"},
		{Provider: "gtts", ID: "es", Name: "Spanish"},
		{Provider: "gtts", ID: "fr", Name: "French"},
		{Provider: "gtts", ID: "de", Name: "German"},
		{Provider: "gtts", ID: "ja", Name: "Japanese"},
		{Provider: "gtts", ID: "zh", Name: "Chinese"},
		{Provider: "openai", ID: "alloy", Name: "Alloy"},
		{Provider: "openai", ID: "echo", Name: "Echo"},
		{Provider: "openai", ID: "fable", Name: "Fable"},
		{Provider: "openai", ID: "onyx", Name: "Onyx"},
		{Provider: "openai", ID: "nova", Name: "Nova"},
		{Provider: "openai", ID: "shimmer", Name: "Shimmer"},
	}
}
