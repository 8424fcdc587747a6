package models

import "github.com/RoaringBitmap/roaring"

// PeerInfo is what another peer advertises for the current round.
type PeerInfo struct {
	ID        string
	Available *roaring.Bitmap
}

func NewPeerInfo(id string, pieces ...int) PeerInfo {
	available := roaring.New()
	for _, p := range pieces {
		available.Add(uint32(p))
	}
	return PeerInfo{ID: id, Available: available}
}

func (p PeerInfo) Has(piece int) bool {
	return p.Available != nil && p.Available.Contains(uint32(piece))
}

type Request struct {
	RequesterID string
	OwnerID     string
	PieceID     int
	StartBlock  int
}

type Upload struct {
	FromID    string
	ToID      string
	Bandwidth int
}

type Download struct {
	FromID string
	ToID   string
	Blocks int
}

// TotalBandwidth sums the bandwidth granted by uploads.
func TotalBandwidth(uploads []Upload) int {
	total := 0
	for _, u := range uploads {
		total += u.Bandwidth
	}
	return total
}
