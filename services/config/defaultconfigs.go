package config

// DefaultPath is where hosts look for the board configuration.
const DefaultPath = "/etc/spider.config"

// Built-in configuration used when a ConfigService has no file, e.g. on
// MCU builds without a filesystem. Keep it in the same format as the file.
const cfgEmbedded = `# SPIder factory settings
ClockportAddress = D80001
Interrupt = 6
`
