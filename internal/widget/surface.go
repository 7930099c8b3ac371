package widget

import (
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/history"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/render"
)

// Surface is the presentation the controller drives. It is resolved once
// at construction; a missing surface aborts initialization entirely.
//
// Announce must publish the text to assistive technology (a live region
// in the browser build) and clear it after one second.
type Surface interface {
	ShowWindow()
	HideWindow()
	// AppendMessage displays a live message with entrance treatment and
	// scrolls it into view
	AppendMessage(msg history.ChatMessage, segs []render.Segment)
	// ReplayMessage displays a restored message with no animation,
	// announcement, or scroll
	ReplayMessage(msg history.ChatMessage, segs []render.Segment)
	SetTyping(active bool)
	Announce(text string)
	// ShowBanner surfaces a connectivity or warning notice; persistent
	// banners stay until HideBanner
	ShowBanner(text string, persistent bool)
	HideBanner()
	ShowQuickReplies(options []string)
	ClearMessages()
}
