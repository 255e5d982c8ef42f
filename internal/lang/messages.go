package lang

type MessageID string

const (
	NoURLGivenMsgID         MessageID = "no_url_given"
	AddingDownloadMsgID     MessageID = "adding_download"
	AddingDownloadsMsgID    MessageID = "adding_downloads"
	DownloadAddedMsgID      MessageID = "download_added"
	DownloadsAddedMsgID     MessageID = "downloads_added"
	NoDownloadsAddedMsgID   MessageID = "no_downloads_added"
	AddDownloadFailedMsgID  MessageID = "add_download_failed"
	DownloadFinishedMsgID   MessageID = "download_finished"
	ConnectionFailedMsgID   MessageID = "connection_failed"
	ConnectionTimeoutMsgID  MessageID = "connection_timeout"
	BadResponseMsgID        MessageID = "bad_response"
	MissingConfigMsgID      MessageID = "missing_config"
	NoPermissionMsgID       MessageID = "no_permission"
	UnknownErrorMsgID       MessageID = "unknown_error"
	FileUploadFailedMsgID   MessageID = "file_upload_failed"
	MaxTasksReachedMsgID    MessageID = "max_tasks_reached"
	DestinationDeniedMsgID  MessageID = "destination_denied"
	DestinationMissingMsgID MessageID = "destination_missing"
	InvalidTaskMsgID        MessageID = "invalid_task"
	NoDefaultDestinationID  MessageID = "no_default_destination"
	RenameFailedMsgID       MessageID = "rename_failed"
	FileNotExistMsgID       MessageID = "file_not_exist"
)

var messages = map[MessageID]map[string]string{
	NoURLGivenMsgID: {
		"en": "No URL to add given!",
		"ru": "Не указана ссылка для добавления!",
	},
	AddingDownloadMsgID: {
		"en": "Adding download...",
		"ru": "Добавление загрузки...",
	},
	AddingDownloadsMsgID: {
		"en": "Adding %d downloads...",
		"ru": "Добавление загрузок: %d...",
	},
	DownloadAddedMsgID: {
		"en": "Download added: %s",
		"ru": "Загрузка добавлена: %s",
	},
	DownloadsAddedMsgID: {
		"en": "%d downloads added",
		"ru": "Добавлено загрузок: %d",
	},
	NoDownloadsAddedMsgID: {
		"en": "None of the given URLs could be added",
		"ru": "Ни одну из ссылок не удалось добавить",
	},
	AddDownloadFailedMsgID: {
		"en": "Failed to add download",
		"ru": "Не удалось добавить загрузку",
	},
	DownloadFinishedMsgID: {
		"en": "Download finished",
		"ru": "Загрузка завершена",
	},
	ConnectionFailedMsgID: {
		"en": "Could not connect to the server",
		"ru": "Не удалось подключиться к серверу",
	},
	ConnectionTimeoutMsgID: {
		"en": "Connection to the server timed out",
		"ru": "Истекло время ожидания ответа сервера",
	},
	BadResponseMsgID: {
		"en": "The server returned an unexpected response",
		"ru": "Сервер вернул неожиданный ответ",
	},
	MissingConfigMsgID: {
		"en": "Connection settings are not configured",
		"ru": "Параметры подключения не настроены",
	},
	NoPermissionMsgID: {
		"en": "You do not have permission to perform this action",
		"ru": "Недостаточно прав для выполнения действия",
	},
	UnknownErrorMsgID: {
		"en": "Unknown error (code %d)",
		"ru": "Неизвестная ошибка (код %d)",
	},
	FileUploadFailedMsgID: {
		"en": "File upload failed",
		"ru": "Не удалось загрузить файл",
	},
	MaxTasksReachedMsgID: {
		"en": "Maximum number of download tasks reached",
		"ru": "Достигнуто максимальное число загрузок",
	},
	DestinationDeniedMsgID: {
		"en": "Destination denied",
		"ru": "Доступ к папке назначения запрещён",
	},
	DestinationMissingMsgID: {
		"en": "Destination does not exist",
		"ru": "Папка назначения не существует",
	},
	InvalidTaskMsgID: {
		"en": "Invalid task id",
		"ru": "Неверный идентификатор задачи",
	},
	NoDefaultDestinationID: {
		"en": "No default destination configured",
		"ru": "Папка назначения по умолчанию не настроена",
	},
	RenameFailedMsgID: {
		"en": "Set destination failed",
		"ru": "Не удалось задать папку назначения",
	},
	FileNotExistMsgID: {
		"en": "File does not exist",
		"ru": "Файл не существует",
	},
}
