package chat

// State is one step of a turn, recorded in Response.Trace.
type State string

const (
	Received        State = "received"
	Classified      State = "classified"
	ToolsSelected   State = "tools_selected"
	PromptAssembled State = "prompt_assembled"
	ModelInvoked    State = "model_invoked"
	CommandExecuted State = "command_executed"
	NoCommand       State = "no_command"
	Failed          State = "failed"
	Persisted       State = "persisted"
	Responded       State = "responded"
)
