package codec

import (
	"io"

	"github.com/jackpal/bencode-go"

	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// EncodeTransfers writes the transfer log as a bencoded list of rounds.
func EncodeTransfers(w io.Writer, rounds []models.RoundLog) error {
	if rounds == nil {
		rounds = []models.RoundLog{}
	}
	return bencode.Marshal(w, rounds)
}
