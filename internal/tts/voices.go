package tts

import "sort"

// DefaultVoice is used when no voice has been chosen or configured.
const DefaultVoice = "Charon"

// DefaultLanguage is the speech language used when none is saved.
const DefaultLanguage = "en"

// voiceNames are the prebuilt voices accepted by the speech model.
var voiceNames = []string{
	"Charon", "Puck", "Kore", "Zephyr", "Aoede", "Fenrir", "Leda", "Orus",
	"Callirrhoe", "Autonoe", "Enceladus", "Iapetus", "Umbriel", "Algieba",
	"Despina", "Erinome", "Algenib", "Rasalgethi", "Laomedeia", "Achernar",
	"Alnilam", "Schedar", "Gacrux", "Pulcherrima", "Achird", "Zubenelgenubi",
	"Vindemiatrix", "Sadachbia", "Sadaltager", "Sulafat",
}

// VoiceOption is a featured voice with a short description of its tone.
type VoiceOption struct {
	Name string
	Tone string
}

// VoiceOptions are the voices offered for selection.
var VoiceOptions = []VoiceOption{
	{Name: "Charon", Tone: "Informative"},
	{Name: "Puck", Tone: "Upbeat"},
	{Name: "Kore", Tone: "Firm"},
	{Name: "Zephyr", Tone: "Bright"},
	{Name: "Aoede", Tone: "Breezy"},
	{Name: "Fenrir", Tone: "Excitable"},
	{Name: "Leda", Tone: "Youthful"},
	{Name: "Orus", Tone: "Firm"},
	{Name: "Callirrhoe", Tone: "Easy-going"},
	{Name: "Autonoe", Tone: "Bright"},
}

// Language is a speech language with the instruction that steers the model
// to read in that language.
type Language struct {
	Code   string
	Label  string
	Prompt string
}

// Languages are the supported speech languages.
var Languages = []Language{
	{Code: "en", Label: "English", Prompt: "Read this changelog summary in a clear, informative tone:"},
	{Code: "cmn", Label: "中文", Prompt: "请用清晰、专业的语气朗读以下更新摘要："},
}

// VoiceNames returns all voice names sorted alphabetically.
func VoiceNames() []string {
	names := append([]string(nil), voiceNames...)
	sort.Strings(names)
	return names
}

// IsValidVoice reports whether name is a known voice. Names are case-sensitive.
func IsValidVoice(name string) bool {
	for _, v := range voiceNames {
		if v == name {
			return true
		}
	}
	return false
}

// LookupLanguage returns the language for code.
func LookupLanguage(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsValidLanguage reports whether code is a supported language.
func IsValidLanguage(code string) bool {
	_, ok := LookupLanguage(code)
	return ok
}
