package dynamo

// DynamoDB attribute names of the key-value table.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	attrKey     = "pk"
	attrValue   = "value"
	attrMembers = "members"
	attrCounter = "counter"
	attrTTL     = "ttl"
)

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100
