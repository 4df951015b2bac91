package application

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const userErrorSeparator = "; "

// userErrors returns the messages under path.userErrors
func userErrors(data json.RawMessage, path string) []string {
	var out []string
	gjson.GetBytes(data, path+".userErrors").ForEach(func(_, e gjson.Result) bool {
		msg := e.Get("message").String()
		if field := e.Get("field"); field.IsArray() && len(field.Array()) > 0 {
			parts := make([]string, 0, len(field.Array()))
			for _, f := range field.Array() {
				parts = append(parts, f.String())
			}
			msg = strings.Join(parts, ".") + ": " + msg
		}
		out = append(out, msg)
		return true
	})
	return out
}

// joinUserErrors concatenates userErrors gathered across sequential mutations
func joinUserErrors(errs []string) string {
	return strings.Join(errs, userErrorSeparator)
}

// toGID turns a numeric id into a global id of the given resource type.
// Values that already are global ids are returned untouched.
func toGID(resource, id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/" + resource + "/" + id
}

// gidTail returns the numeric part of a global id
func gidTail(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}
