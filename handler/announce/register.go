package announce

import (
	"github.com/mri-Qbox-Brasil/mri-qbot/command"
	"github.com/mri-Qbox-Brasil/mri-qbot/handler"
)

var svc *Service

// RegisterHandlers wires the announce command and its components into the
// interaction router.
func RegisterHandlers(service *Service) {
	svc = service
	handler.AddCommandHandler(command.AnnounceCommand.Name, announceCommandHandler)
	handler.AddComponentHandler(actionButton, componentInteractionHandler)
	handler.AddComponentHandler(actionSelect, componentInteractionHandler)
}
