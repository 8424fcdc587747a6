package models

// History is one peer's view of every round before the current one.
type History interface {
	CurrentRound() int
	Downloads(round int) []Download
	Uploads(round int) []Upload
}

// RoundHistory is the append-only History kept by the scheduler.
// Downloads are the transfers the peer received, uploads the grants it made.
type RoundHistory struct {
	downloads [][]Download
	uploads   [][]Upload
}

func NewRoundHistory() *RoundHistory {
	return &RoundHistory{}
}

func (h *RoundHistory) CurrentRound() int {
	return len(h.downloads)
}

func (h *RoundHistory) Downloads(round int) []Download {
	if round < 0 || round >= len(h.downloads) {
		return nil
	}
	return h.downloads[round]
}

func (h *RoundHistory) Uploads(round int) []Upload {
	if round < 0 || round >= len(h.uploads) {
		return nil
	}
	return h.uploads[round]
}

// Record closes the current round and advances to the next one.
func (h *RoundHistory) Record(downloads []Download, uploads []Upload) {
	h.downloads = append(h.downloads, downloads)
	h.uploads = append(h.uploads, uploads)
}
