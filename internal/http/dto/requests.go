package dto

type CreateUserRequest struct {
	PublicAddress string `json:"publicAddress"`
}

type AddFriendRequest struct {
	PublicAddress       string `json:"publicAddress"`
	FriendName          string `json:"friendName"`
	FriendEmail         string `json:"friendEmail"`
	FriendWalletAddress string `json:"friendWalletAddress"`
}

type CreateWillRequest struct {
	Nominees        []string `json:"nominees"`
	DeadlineSeconds int64    `json:"deadlineSeconds"`
	EncryptedData   string   `json:"encryptedData"`
}
