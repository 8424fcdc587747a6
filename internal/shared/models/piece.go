package models

// LocalPeer is the snapshot of the peer the decision core runs for.
// Pieces holds, per piece index, the number of contiguous blocks already held.
type LocalPeer struct {
	ID             string
	Pieces         []int
	UploadCapacity int
	BlocksPerPiece int
}

func (p LocalPeer) Complete(piece int) bool {
	return p.Pieces[piece] >= p.BlocksPerPiece
}

// HeldBlocks returns the number of blocks held across every piece.
func (p LocalPeer) HeldBlocks() int {
	total := 0
	for _, blocks := range p.Pieces {
		total += blocks
	}
	return total
}

// CompletePieces returns the indices of every complete piece, ascending.
func (p LocalPeer) CompletePieces() []int {
	complete := make([]int, 0, len(p.Pieces))
	for i := range p.Pieces {
		if p.Complete(i) {
			complete = append(complete, i)
		}
	}
	return complete
}

func (p LocalPeer) Done() bool {
	for i := range p.Pieces {
		if !p.Complete(i) {
			return false
		}
	}
	return true
}
