package study

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Pad names one of the two directional pads of the study board.
type Pad string

const (
	PadKeyPositions Pad = "key_positions"
	PadAnalysis     Pad = "analysis"
)

type Orientation string

const (
	White Orientation = "white"
	Black Orientation = "black"
)

const AdvisoryPickPosition = "pick a position from the list first"

// Snapshot is the client-facing view of a study board.
type Snapshot struct {
	StudyID      string         `json:"study_id,omitempty"`
	CourseID     string         `json:"course_id,omitempty"`
	Revision     uint64         `json:"revision"`
	Position     string         `json:"position"`
	Display      string         `json:"display"`
	Orientation  Orientation    `json:"orientation"`
	KeyIndex     *int           `json:"key_index"`
	Phase        Phase          `json:"phase"`
	AnalysisBase string         `json:"analysis_base,omitempty"`
	Lines        []AnalysisLine `json:"lines"`
	SelectedRank int            `json:"selected_rank"`
	MoveOffset   int            `json:"move_offset"`
	Advisory     string         `json:"advisory,omitempty"`
	LastMove     *MoveResult    `json:"last_move,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// SavedStudy is the part of a study that survives a reconnect.
type SavedStudy struct {
	StudyID     string      `json:"study_id"`
	CourseID    string      `json:"course_id"`
	Position    string      `json:"position"`
	KeyIndex    *int        `json:"key_index"`
	Orientation Orientation `json:"orientation"`
	UpdatedAt   int64       `json:"updated_at"`
}

type CommandType string

const (
	CommandPad               CommandType = "pad"
	CommandMove              CommandType = "move"
	CommandLoadFEN           CommandType = "load_fen"
	CommandAnalyze           CommandType = "analyze"
	CommandSelectLine        CommandType = "select_line"
	CommandSelectKeyPosition CommandType = "select_key_position"
	CommandFlip              CommandType = "flip"
)

// Command is a client frame of the study websocket. Only the fields of the
// given Type are read; Move accepts "e2e4" or "e7e8q".
type Command struct {
	Type      CommandType `json:"type"`
	Pad       Pad         `json:"pad,omitempty"`
	Direction Direction   `json:"direction,omitempty"`
	Move      string      `json:"move,omitempty"`
	FEN       string      `json:"fen,omitempty"`
	Lines     int         `json:"lines,omitempty"`
	Depth     int         `json:"depth,omitempty"`
	Rank      int         `json:"rank,omitempty"`
	Index     *int        `json:"index,omitempty"`
}

// ServerMessage is a server frame of the study websocket.
type ServerMessage struct {
	Type     string    `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)
