package dispatcher

import (
	"context"

	"mediabot/internal/models"
	"mediabot/internal/utils"
)

// chatDeliverer sends finished artifacts back to the chat that asked for them.
type chatDeliverer struct {
	messenger Messenger
	chatID    int64
	userName  string
	single    bool
}

func (c *chatDeliverer) DeliverFile(ctx context.Context, res *models.DownloadResult) error {
	caption := bulkCaption(res)
	if c.single {
		caption = singleCaption(res, c.userName)
	}

	return c.messenger.SendFile(ctx, c.chatID, models.OutFile{
		Path:     res.ArtifactPath,
		FileName: utils.DeliveryFileName(res.Title),
		Caption:  caption,
	})
}

func (c *chatDeliverer) DeliverOversize(ctx context.Context, res *models.DownloadResult) error {
	_, err := c.messenger.SendText(ctx, c.chatID, models.OutMessage{Text: oversizeText(res)})

	return err
}
