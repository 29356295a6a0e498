package instrumentation

import "strings"

// UserDomain returns the domain of an email address, or "unknown". Metrics and
// the default audit log use it in place of the address.
func UserDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return domain
}

// Operation labels for Google API, store and tool metrics.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationModify = "modify"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Where a tag filter was evaluated.
const (
	EvaluationClient = "client"
	EvaluationServer = "server"
)
