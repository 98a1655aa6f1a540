package handlers

// Callback data identifiers carried by the funnel's inline buttons.
const (
	CallbackVideoWatched      = "video_watched"
	CallbackChannelCreated    = "channel_created"
	CallbackNeedCreateChannel = "need_create_channel"
	CallbackNeedHelp          = "need_help"
	CallbackContinueLearning  = "continue_learning"
	CallbackWritePosts        = "write_posts"
	CallbackWriteMyself       = "write_myself"
	CallbackRewritePost       = "rewrite_post"
	CallbackNextPost          = "next_post"
	CallbackPublishMyself     = "publish_myself"
	CallbackHelpPublish       = "help_publish"
	CallbackBotAdded          = "bot_added"
	CallbackSkipLink          = "skip_link"
	CallbackButtonToDM        = "button_to_dm"
	CallbackButtonToWebsite   = "button_to_website"
	CallbackButtonTextPrefix  = "button_text_"
	CallbackButtonTextCustom  = "button_text_custom"
	CallbackPostOK            = "post_ok"
	CallbackPostNo            = "post_no"
	CallbackWriteAnonsMyself  = "write_anons_myself"
	CallbackHelpWriteAnons    = "help_write_anons"
	CallbackWriteSalesMyself  = "write_sales_myself"
	CallbackHelpWriteSales    = "help_write_sales"
	CallbackRewriteSales      = "rewrite_sales"
	CallbackToFinalStep       = "to_final_step"
)
