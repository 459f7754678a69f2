// Package alerts implements the rule evaluation engine and webhook delivery
// for the collector. Rules are evaluated against every received feed;
// webhooks are delivered to Discord, Slack, Teams, or generic HTTP targets.
package alerts
