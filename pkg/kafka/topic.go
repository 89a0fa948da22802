package kafka

// TopicPrefix namespaces every topic this service writes to.
const TopicPrefix = "contactsbook"

// Topic returns "<prefix>.<domain>.<action>", e.g. contactsbook.user.registered.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
