package announce

import (
	"fmt"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// SelectTarget records the chosen destination channel. The channel's type
// and reachability are deliberately not validated here: Send re-checks them
// with the freshest state at the moment it matters.
func (sv *Service) SelectTarget(data *model.AnnounceData, channelID string) error {
	if err := sv.store.UpdateTargetChannel(data.ID, channelID); err != nil {
		return err
	}
	data.AnnounceChannelID = channelID

	logger.Debug().Str("announce_id", data.ID).Str("target_channel_id", channelID).Msg("target channel selected")
	sv.editOrigin(data, fmt.Sprintf("Canal selecionado: <#%s>", channelID))
	return nil
}
