package dto

// Response is the envelope the directory endpoints have always spoken:
// clients key off success plus a human-readable message.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func OK(message string, data any) Response {
	if data == nil {
		data = map[string]any{}
	}
	return Response{Success: true, Message: message, Data: data}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message, Data: map[string]any{}}
}

type SessionResponse struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
}

type BalanceResponse struct {
	Address    string `json:"address"`
	BalanceWei string `json:"balanceWei"`
}

type PingResponse struct {
	TokenID string `json:"tokenId"`
	TxHash  string `json:"txHash"`
	Message string `json:"message"`
}
