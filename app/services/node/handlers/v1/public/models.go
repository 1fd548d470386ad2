package public

import "github.com/ardanlabs/powchain/foundation/blockchain/database"

// newTx is the document a client posts to submit a transaction. The amount
// is a pointer so a missing amount can be told apart from zero.
type newTx struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required"`
}

type txAdded struct {
	Message string `json:"message"`
	Index   uint64 `json:"index"`
}

type minedBlock struct {
	Message      string        `json:"message"`
	Index        uint64        `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PreviousHash string        `json:"previous_hash"`
}

type registerNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

type nodesAdded struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message string           `json:"message"`
	Chain   []database.Block `json:"chain"`
}
