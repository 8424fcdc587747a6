package models

type Scenario struct {
	Pieces         int            `bencode:"pieces"`
	BlocksPerPiece int            `bencode:"blocks per piece"`
	Rounds         int            `bencode:"rounds"`
	Seed           int64          `bencode:"seed"`
	Peers          []ScenarioPeer `bencode:"peers"`
}

type ScenarioPeer struct {
	ID       string `bencode:"id"`
	Strategy string `bencode:"strategy"`
	Capacity int    `bencode:"capacity"`
	// Have lists the pieces the peer starts with complete.
	Have []int `bencode:"have"`
}

// Transfer is one line of the transfer log written after a simulation.
type Transfer struct {
	From   string `bencode:"from"`
	To     string `bencode:"to"`
	Blocks int    `bencode:"blocks"`
}

type RoundLog struct {
	Round     int        `bencode:"round"`
	Transfers []Transfer `bencode:"transfers"`
}
