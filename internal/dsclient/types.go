package dsclient

import (
	"github.com/dswatch/dswatch/internal/lang"
)

// Task statuses reported by Download Station.
const (
	StatusWaiting     = "waiting"
	StatusDownloading = "downloading"
	StatusPaused      = "paused"
	StatusFinishing   = "finishing"
	StatusFinished    = "finished"
	StatusHashCheck   = "hash_checking"
	StatusSeeding     = "seeding"
	StatusExtracting  = "extracting"
	StatusError       = "error"
)

// IsTerminal reports whether no further progress is expected for the status.
func IsTerminal(status string) bool {
	return status == StatusFinished || status == StatusSeeding
}

type TransferDetail struct {
	SizeDownloaded int64 `json:"size_downloaded"`
	SizeUploaded   int64 `json:"size_uploaded"`
	SpeedDownload  int64 `json:"speed_download"`
	SpeedUpload    int64 `json:"speed_upload"`
}

type TaskAdditional struct {
	Transfer *TransferDetail `json:"transfer,omitempty"`
}

// Task is a remote-owned download task. The daemon never mutates tasks;
// each poll replaces the whole list.
type Task struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Size       int64           `json:"size"`
	Additional *TaskAdditional `json:"additional,omitempty"`
}

type TaskList struct {
	Total int    `json:"total"`
	Tasks []Task `json:"tasks"`
}

type FailureKind string

const (
	FailureMissingConfig FailureKind = "missing-config"
	FailureNetwork       FailureKind = "network"
	FailureTimeout       FailureKind = "timeout"
	FailureBadResponse   FailureKind = "bad-response"
)

// ConnectionFailure means the remote call could not be meaningfully completed.
// It is data, not an error: callers classify it instead of unwrapping it.
type ConnectionFailure struct {
	Kind FailureKind
	Err  error
}

func (f *ConnectionFailure) Message() string {
	switch f.Kind {
	case FailureMissingConfig:
		return lang.GetMessage(lang.MissingConfigMsgID)
	case FailureTimeout:
		return lang.GetMessage(lang.ConnectionTimeoutMsgID)
	case FailureBadResponse:
		return lang.GetMessage(lang.BadResponseMsgID)
	default:
		return lang.GetMessage(lang.ConnectionFailedMsgID)
	}
}

type APIError struct {
	Code int `json:"code"`
}

type Response[T any] struct {
	Success bool     `json:"success"`
	Data    T        `json:"data"`
	Error   APIError `json:"error"`
}

// Result holds exactly one of a connection failure or a well-formed response.
type Result[T any] struct {
	Failure  *ConnectionFailure
	Response *Response[T]
}

func failed[T any](kind FailureKind, err error) Result[T] {
	return Result[T]{Failure: &ConnectionFailure{Kind: kind, Err: err}}
}

// Void is the data payload of responses that carry none.
type Void struct{}

// Well-known Download Station API error codes.
const (
	CodeNoPermission         = 105
	CodeFileUploadFailed     = 400
	CodeMaxTasksReached      = 401
	CodeDestinationDenied    = 402
	CodeDestinationMissing   = 403
	CodeInvalidTaskID        = 404
	CodeInvalidTaskAction    = 405
	CodeNoDefaultDestination = 406
	CodeRenameFailed         = 407
	CodeFileDoesNotExist     = 408
)

// ErrorMessage translates a Download Station error code into user-facing text.
func ErrorMessage(code int) string {
	switch code {
	case CodeNoPermission:
		return lang.GetMessage(lang.NoPermissionMsgID)
	case CodeFileUploadFailed:
		return lang.GetMessage(lang.FileUploadFailedMsgID)
	case CodeMaxTasksReached:
		return lang.GetMessage(lang.MaxTasksReachedMsgID)
	case CodeDestinationDenied:
		return lang.GetMessage(lang.DestinationDeniedMsgID)
	case CodeDestinationMissing:
		return lang.GetMessage(lang.DestinationMissingMsgID)
	case CodeInvalidTaskID, CodeInvalidTaskAction:
		return lang.GetMessage(lang.InvalidTaskMsgID)
	case CodeNoDefaultDestination:
		return lang.GetMessage(lang.NoDefaultDestinationID)
	case CodeRenameFailed:
		return lang.GetMessage(lang.RenameFailedMsgID)
	case CodeFileDoesNotExist:
		return lang.GetMessage(lang.FileNotExistMsgID)
	default:
		return lang.GetMessage(lang.UnknownErrorMsgID, code)
	}
}
