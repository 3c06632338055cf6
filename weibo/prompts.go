package weibo

import (
	"fmt"
	"strings"

	"github.com/ncobase/weibo-agent/weibo/structs"
)

const qrGeneratePrompt = `Open the Weibo QR code login page (https://weibo.com/login.php) and prepare QR code login.

Steps:
1. Open the login page and switch to QR code login
2. Wait for the QR code to render
3. Capture the QR code image as a data URL or its image address

Reply with a JSON object:
{"success": true/false, "qr_code": "data:image/png;base64,...", "qr_status": "waiting", "user_info": {}, "error": ""}`

const qrCheckPrompt = `Check the status of the pending Weibo QR code login on the current page.

Steps:
1. Read the login status hint on the page
2. Decide whether the QR code has been scanned
3. Decide whether the user confirmed the login
4. If logged in, read the profile information
5. If the QR code expired, report it

Reply with a JSON object:
{"success": true/false, "qr_status": "waiting/scanned/confirmed/expired",
 "user_info": {"nickname": "", "followers_count": "", "following_count": "", "weibo_count": ""},
 "message": "", "error": ""}`

const passwordLoginPrompt = `Log in to Weibo with username and password.

Username: %s
Password: %s

Steps:
1. Open https://weibo.com/login.php
2. Choose username and password login
3. Enter the credentials and submit
4. Confirm the login succeeded
5. Read the profile information (nickname, followers and so on)

If the account does not allow password login, report the error.

Reply with a JSON object:
{"success": true/false,
 "user_info": {"nickname": "", "followers_count": "", "following_count": "", "weibo_count": ""},
 "error": ""}`

const listPostsPrompt = `List my own Weibo posts.

Filters:
- %s
- %s
- At most %d posts

Steps:
1. Go to my profile page
2. Scroll to load more posts
3. Keep only posts matching the filters
4. Read the details of every kept post

Reply with a JSON object:
{"success": true/false,
 "weibos": [{"id": "", "content": "", "publish_time": "", "repost_count": 0, "comment_count": 0,
             "like_count": 0, "has_media": true/false, "url": ""}],
 "total_count": 0, "error": ""}`

const analyzePrompt = `Rate the risk level of the following Weibo post.

Content: %s
Published: %s

Score from 0 to 10 (10 is the highest risk) considering:
1. Politically sensitive content
2. Improper or controversial statements
3. Outdated or inaccurate information
4. Personal privacy leaks
5. Advertising or spam
6. Negative emotion or complaints
7. Content likely to be misunderstood

Reply with a JSON object:
{"risk_score": 0, "risk_reasons": [""], "risk_category": "", "suggestion": ""}`

const deletePrompt = `Delete the Weibo post with id %s.

Steps:
1. Find the post with id %s on my profile page
2. Open the "more" menu at the top right of the post
3. Choose "delete"
4. Confirm the deletion
5. Verify that the post is gone

Only delete this exact post. If it cannot be found or the deletion fails, report the error.

Reply with a JSON object:
{"success": true/false, "error": ""}`

func passwordLoginTask(username, password string) string {
	return fmt.Sprintf(passwordLoginPrompt, username, password)
}

func listPostsTask(c structs.Criteria) string {
	timeFilter := "Any time"
	if tr := c.TimeRange; tr != nil {
		switch {
		case tr.StartDate != "" && tr.EndDate != "":
			timeFilter = fmt.Sprintf("Published from %s to %s", tr.StartDate, tr.EndDate)
		case tr.StartDate != "":
			timeFilter = fmt.Sprintf("Published since %s", tr.StartDate)
		case tr.EndDate != "":
			timeFilter = fmt.Sprintf("Published until %s", tr.EndDate)
		}
	}
	keywordFilter := "Any keywords"
	if len(c.Keywords) > 0 {
		keywordFilter = "Containing keywords: " + strings.Join(c.Keywords, ", ")
	}
	return fmt.Sprintf(listPostsPrompt, timeFilter, keywordFilter, c.MaxPosts)
}

func analyzeTask(p structs.Post) string {
	return fmt.Sprintf(analyzePrompt, p.Content, p.PublishTime)
}

func deleteTask(id string) string {
	return fmt.Sprintf(deletePrompt, id, id)
}
