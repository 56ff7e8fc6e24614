package screens

import "igdroid/pkg/device"

// Selector tables for the Instagram app. Instagram ships several layout
// variants at any time and renames resource ids between releases, so most
// lookups carry fallbacks; order is priority.
var (
	homeMarkers = []device.Selector{
		{ResourceID: "tab_bar"},
		{ResourceID: "tab_avatar"},
		{Desc: "Home"},
	}

	profileMarkers = []device.Selector{
		{ResourceID: "row_profile_header"},
		{ResourceID: "profile_header_full_name"},
		{ResourceID: "row_profile_header_textview_post_count"},
	}

	hashtagMarkers = []device.Selector{
		{ResourceID: "hashtag_media_count"},
		{ResourceID: "hashtag_feed_type_selector"},
		{ResourceID: "recycler_view"},
	}

	postMarkers = []device.Selector{
		{ResourceID: "row_feed_photo_profile_name"},
		{ResourceID: "row_feed_button_like"},
		{ResourceID: "row_feed_textview_likes"},
	}

	gridTiles = []device.Selector{
		{ResourceID: "image_button"},
		{ClassName: "android.widget.ImageView", DescContains: "Photo by"},
	}

	likesRow = []device.Selector{
		{ResourceID: "row_feed_textview_likes"},
		{DescContains: "likes"},
	}

	commentCountRow = []device.Selector{
		{ResourceID: "row_feed_view_all_comment_text"},
		{TextContains: "comments"},
	}

	commentButton = []device.Selector{
		{ResourceID: "row_feed_button_comment"},
		{Desc: "Comment"},
	}

	likersListMarkers = []device.Selector{
		{ResourceID: "action_bar_title", Text: "Likes"},
		{ResourceID: "row_user_username"},
	}

	commentListMarkers = []device.Selector{
		{ResourceID: "layout_comment_thread_edittext"},
		{ResourceID: "row_comment_textview_comment"},
	}

	userRow = device.Selector{ResourceID: "row_user_username"}

	commentRow = device.Selector{ResourceID: "row_comment_textview_comment"}

	loadMoreControls = []device.Selector{
		{ResourceID: "row_load_more_button"},
		{TextContains: "Load more"},
		{DescContains: "Load more"},
	}

	fullNameField = []device.Selector{
		{ResourceID: "profile_header_full_name"},
		{ResourceID: "row_profile_header_full_name"},
	}

	bioField = []device.Selector{
		{ResourceID: "profile_header_bio_text"},
		{ResourceID: "row_profile_header_bio_text"},
	}

	websiteField = []device.Selector{
		{ResourceID: "profile_header_website"},
		{ResourceID: "row_profile_header_website"},
	}

	followersField = []device.Selector{
		{ResourceID: "row_profile_header_textview_followers_count"},
		{ResourceID: "profile_header_followers_count"},
	}

	followingField = []device.Selector{
		{ResourceID: "row_profile_header_textview_following_count"},
		{ResourceID: "profile_header_following_count"},
	}

	postCountField = []device.Selector{
		{ResourceID: "row_profile_header_textview_post_count"},
		{ResourceID: "profile_header_post_count"},
	}

	verifiedBadge = []device.Selector{
		{ResourceID: "action_bar_title_verified_badge"},
		{Desc: "Verified"},
	}

	privateNotice = []device.Selector{
		{ResourceID: "row_profile_header_empty_profile_notice_title"},
		{TextContains: "This account is private"},
	}

	categoryField = []device.Selector{
		{ResourceID: "profile_header_business_category"},
		{ResourceID: "row_profile_header_business_category"},
	}

	threadsBadge = []device.Selector{
		{ResourceID: "profile_header_threads_badge"},
	}
)
