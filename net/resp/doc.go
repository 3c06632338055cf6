// Package resp writes the JSON envelopes used by the weibo-agent HTTP API.
//
// Successful responses carry the payload as the body. Failures carry an
// Exception body with a business code from ecode:
//
//	{"code": -401, "message": "post_ids required"}
//
// Handlers call Success or Fail with the gin writer:
//
//	resp.Success(c.Writer, view)
//	resp.Fail(c.Writer, resp.BadRequest(ecode.FieldIsRequired("username")))
package resp
