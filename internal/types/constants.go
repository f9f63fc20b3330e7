package types

const ContextUserKey = "user"

const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)
