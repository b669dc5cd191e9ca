package embedding

// Source kinds. These are persisted in chunk properties and echoed back in
// citations, so the strings are part of the stored format.
const (
	KindFile  = "file"
	KindText  = "text"
	KindURL   = "url"
	KindVideo = "youtube"
)

// CommonMeta is shared by every source kind.
type CommonMeta struct {
	Title      string
	SourceKind string
}

// Meta is the closed set of chunk metadata variants. The gateway
// type-switches over it exhaustively when building stored properties, so
// adding a kind means extending that switch.
type Meta interface {
	Common() CommonMeta
}

type FileMeta struct {
	Title    string
	Filename string
}

func (m FileMeta) Common() CommonMeta { return CommonMeta{Title: m.Title, SourceKind: KindFile} }

type TextMeta struct {
	Title string
}

func (m TextMeta) Common() CommonMeta { return CommonMeta{Title: m.Title, SourceKind: KindText} }

type URLMeta struct {
	Title  string
	URL    string
	Domain string
}

func (m URLMeta) Common() CommonMeta { return CommonMeta{Title: m.Title, SourceKind: KindURL} }

type VideoMeta struct {
	Title    string
	VideoID  string
	VideoURL string
	Author   string
}

func (m VideoMeta) Common() CommonMeta { return CommonMeta{Title: m.Title, SourceKind: KindVideo} }
