// Package ecode defines the business error codes returned by the weibo-agent
// API and maps them to HTTP statuses and human-readable text.
//
// Code ranges:
//   - 0: success
//   - -100 to -199: session and login errors
//   - -400 to -499: request and resource errors
//   - -500+: server and queue errors
//
// Usage with the resp package:
//
//	resp.Fail(c.Writer, &resp.Exception{
//	    Status:  http.StatusBadRequest,
//	    Code:    ecode.ParamErr,
//	    Message: ecode.FieldIsRequired("post_ids"),
//	})
package ecode
