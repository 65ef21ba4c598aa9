package mysql

import "nodemonitor/pkg/store/mysql/model"

type (
	User                    = model.User
	Node                    = model.Node
	JobEarning              = model.JobEarning
	NodeTrackingMetadata    = model.NodeTrackingMetadata
	ScrapedJob              = model.ScrapedJob
	NotificationPreferences = model.NotificationPreferences
	DeviceToken             = model.DeviceToken
	TelegramUser            = model.TelegramUser
	TelegramLinkCode        = model.TelegramLinkCode
)
