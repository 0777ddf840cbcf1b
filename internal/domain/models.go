package domain

import "time"

// Mode selects how many participants answer each question.
type Mode string

const (
	ModeSolo       Mode = "solo"
	ModeHeadToHead Mode = "head_to_head"
)

// SlotCount is the number of participant slots the mode requires.
func (m Mode) SlotCount() int {
	if m == ModeHeadToHead {
		return 2
	}
	return 1
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSolo || m == ModeHeadToHead
}

// Status is the session lifecycle state.
type Status string

const (
	StatusConfiguring Status = "configuring"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
)

// Difficulty keys the experience weight table.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Review controls feedback and navigation while a session runs.
type Review string

const (
	// ReviewTraining reveals the outcome of each answer immediately.
	ReviewTraining Review = "training"
	// ReviewExam hides outcomes until completion and allows back/forward navigation.
	ReviewExam Review = "exam"
)

// QuestionRecord is one normalized row of a question bank.
type QuestionRecord struct {
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correctAnswer"`
	Alternatives  []string `json:"alternatives,omitempty"`
}

// QuestionBank is an immutable, loaded collection of question records.
type QuestionBank struct {
	ID        string           `json:"id"`
	Questions []QuestionRecord `json:"questions"`
}

// PreparedQuestion is a question frozen with its option order for one session.
type PreparedQuestion struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Pick is a recorded selection for one question and participant slot.
// The zero value means unanswered.
type Pick struct {
	Choice   string `json:"choice,omitempty"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// Answered reports whether the pick counts as filled.
func (p Pick) Answered() bool {
	return p.TimedOut || p.Choice != ""
}

// ScoreBreakdown is the scoring outcome for a single participant slot.
type ScoreBreakdown struct {
	Participant      string  `json:"participant"`
	CorrectCount     int     `json:"correctCount"`
	Total            int     `json:"total"`
	Percentage       float64 `json:"percentage"`
	ExperiencePoints int     `json:"experiencePoints"`
}

// ResultRecord is one persisted line of the leaderboard log.
type ResultRecord struct {
	SessionID        string    `json:"sessionId"`
	Participant      string    `json:"participant"`
	Mode             Mode      `json:"mode"`
	Score            int       `json:"score"`
	Total            int       `json:"total"`
	Percentage       float64   `json:"percentage"`
	ExperiencePoints int       `json:"experiencePoints"`
	Timestamp        time.Time `json:"timestamp"`
}

// LeaderboardEntry aggregates every result of one participant.
type LeaderboardEntry struct {
	Participant      string  `json:"participant"`
	ExperiencePoints int     `json:"experiencePoints"`
	BestPercentage   float64 `json:"bestPercentage"`
	Sessions         int     `json:"sessions"`
}

// Leaderboard captures the ordered scoreboard built from result records.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuestionView is the display form of the current question; it never carries the answer.
type QuestionView struct {
	Number  int      `json:"number"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Picks   []Pick   `json:"picks"`
}

// SessionView is the snapshot the presentation adapter renders each cycle.
type SessionView struct {
	ID               string           `json:"id"`
	Status           Status           `json:"status"`
	Mode             Mode             `json:"mode,omitempty"`
	Review           Review           `json:"review,omitempty"`
	Participants     []string         `json:"participants,omitempty"`
	Index            int              `json:"index"`
	Total            int              `json:"total"`
	Question         *QuestionView    `json:"question,omitempty"`
	RemainingSeconds *int             `json:"remainingSeconds,omitempty"`
	Scores           []ScoreBreakdown `json:"scores,omitempty"`
	Recorded         bool             `json:"recorded"`
}

// Feedback is the per-answer outcome revealed in training mode.
type Feedback struct {
	Index         int    `json:"index"`
	Slot          int    `json:"slot"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	TimedOut      bool   `json:"timedOut,omitempty"`
}

// ReviewRow is one line of a participant's answer sheet.
type ReviewRow struct {
	Number        int    `json:"number"`
	Participant   string `json:"participant"`
	Prompt        string `json:"prompt"`
	Choice        string `json:"choice"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut,omitempty"`
}
