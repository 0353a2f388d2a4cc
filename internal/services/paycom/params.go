package paycom

// Method names dispatched by the webhook. Matching is exact.
const (
	MethodCheckPerformTransaction = "CheckPerformTransaction"
	MethodCreateTransaction       = "CreateTransaction"
	MethodPerformTransaction      = "PerformTransaction"
	MethodCancelTransaction       = "CancelTransaction"
	MethodCheckTransaction        = "CheckTransaction"
	MethodGetStatement            = "GetStatement"
)

// Account identifies the billing subject inside provider params.
type Account struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

type CheckPerformParams struct {
	Amount  int64   `json:"amount"` // minor currency units
	Account Account `json:"account"`
}

type CreateParams struct {
	ID      string  `json:"id"`   // provider transaction id
	Time    int64   `json:"time"` // provider clock, epoch ms
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type PerformParams struct {
	ID string `json:"id"`
}

type CancelParams struct {
	ID     string `json:"id"`
	Reason *int   `json:"reason"`
}

type CheckParams struct {
	ID string `json:"id"`
}

type StatementParams struct {
	From int64 `json:"from"` // inclusive, epoch ms
	To   int64 `json:"to"`   // inclusive, epoch ms
}

type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

type CreateResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type PerformResult struct {
	Transaction string `json:"transaction"`
	PerformTime int64  `json:"perform_time"`
	State       int    `json:"state"`
}

type CancelResult struct {
	Transaction string `json:"transaction"`
	CancelTime  int64  `json:"cancel_time"`
	State       int    `json:"state"`
}

type CheckResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

// StatementEntry is the provider's flat statement projection.
type StatementEntry struct {
	ID          string  `json:"id"`
	Time        int64   `json:"time"`
	Amount      int64   `json:"amount"`
	Account     Account `json:"account"`
	CreateTime  int64   `json:"create_time"`
	PerformTime int64   `json:"perform_time"`
	CancelTime  int64   `json:"cancel_time"`
	Transaction string  `json:"transaction"`
	State       int     `json:"state"`
	Reason      *int    `json:"reason"`
}

type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}
