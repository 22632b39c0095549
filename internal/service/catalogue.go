package service

// DefaultKey is the service looked up when a request does not name one.
const DefaultKey = "github"

// Catalogue lists every supported provider in the order it is presented to callers.
var Catalogue = []Descriptor{
	{Key: "openai", DisplayName: "OpenAI", ProviderHost: "status.openai.com"},
	{Key: "cloudflare", DisplayName: "Cloudflare", ProviderHost: "www.cloudflarestatus.com"},
	{Key: "discord", DisplayName: "Discord", ProviderHost: "discordstatus.com"},
	{Key: "dropbox", DisplayName: "Dropbox", ProviderHost: "status.dropbox.com"},
	{Key: "digitalocean", DisplayName: "Digital Ocean", ProviderHost: "status.digitalocean.com"},
	{Key: "hubspot", DisplayName: "Hubspot", ProviderHost: "status.hubspot.com"},
	{Key: "github", DisplayName: "Github", ProviderHost: "www.githubstatus.com"},
	{Key: "bitbucket", DisplayName: "Bitbucket", ProviderHost: "bitbucket.status.atlassian.com"},
	{Key: "sendgrid", DisplayName: "Sendgrid", ProviderHost: "status.sendgrid.com"},
	{Key: "snowflake", DisplayName: "Snowflake", ProviderHost: "status.snowflake.com"},
	{Key: "twilio", DisplayName: "Twilio", ProviderHost: "status.twilio.com"},
	{Key: "npm", DisplayName: "Npm", ProviderHost: "status.npmjs.org"},
	{Key: "akamai", DisplayName: "Akamai", ProviderHost: "www.akamaistatus.com"},
	{Key: "twitch", DisplayName: "Twitch", ProviderHost: "status.twitch.com"},
	{Key: "squarespace", DisplayName: "Squarespace", ProviderHost: "status.squarespace.com"},
	{Key: "newrelic", DisplayName: "New Relic", ProviderHost: "status.newrelic.com"},
	{Key: "reddit", DisplayName: "Reddit", ProviderHost: "www.redditstatus.com"},
	{Key: "coinbase", DisplayName: "Coinbase", ProviderHost: "status.coinbase.com"},
}

// Default returns a registry over the built-in catalogue.
func Default() *Registry {
	return MustNewRegistry(Catalogue, DefaultKey)
}
