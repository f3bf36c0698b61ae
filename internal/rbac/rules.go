package rbac

// Default policy. Students drive their own records, parents only grant quiz
// unlocks, teachers review and issue codes.
var RolePermissions = map[string][]string{
	"student": {
		"record:create",
		"record:view-own",
		"record:edit",
		"record:submit",
		"record:cancel",
		"record:delete",
		"consent:request",
		"quiz:take",
	},
	"parent": {
		"consent:grant",
	},
	"teacher": {
		"record:view-all",
		"review:decide",
		"code:issue",
	},
	"admin": {
		"*", // everything
	},
}
