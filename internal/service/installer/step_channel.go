package installer

// NewChannelStep picks which transports `medichat serve` starts.
func NewChannelStep() Step {
	return &choiceStep{
		prompt: "Where should the assistant be reachable besides the terminal?",
		envKey: keyChannel,
		choices: []item{
			{id: "cli", title: "Terminal only"},
			{id: "telegram", title: "Telegram"},
			{id: "http", title: "HTTP API"},
			{id: "both", title: "Telegram and HTTP API"},
		},
	}
}

func wantsTelegram(state *InstallState) bool {
	ch := state.EnvVars[keyChannel]
	return ch == "telegram" || ch == "both"
}

func wantsHTTP(state *InstallState) bool {
	ch := state.EnvVars[keyChannel]
	return ch == "http" || ch == "both"
}
