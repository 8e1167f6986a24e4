package logAction

const (
	Consuming    = "[CONSUMING]"
	Producing    = "[PRODUCING]"
	Produced     = "[PRODUCED]"
	AppLogic     = "[APP_LOGIC]"
	HttpRequest  = "[HTTP_REQUEST]"
	HttpResponse = "[HTTP_RESPONSE]"
	DbRequest    = "[DB_REQUEST]"
	DbResponse   = "[DB_RESPONSE]"
	Exception    = "[EXCEPTION]"
	Inbound      = "[INBOUND]"
	Outbound     = "[OUTBOUND]"
	System       = "[SYSTEM]"
)

type DBAction string

const (
	DB_CREATE DBAction = "CREATE"
	DB_READ   DBAction = "READ"
	DB_UPDATE DBAction = "UPDATE"
	DB_DELETE DBAction = "DELETE"
)

type LoggerAction struct {
	Action            string `json:"action"`
	ActionDescription string `json:"actionDescription"`
	SubAction         string `json:"subAction,omitempty"`
}

func newAction(action, desc string, subAction ...string) LoggerAction {
	a := LoggerAction{Action: action, ActionDescription: desc}
	if len(subAction) > 0 {
		a.SubAction = subAction[0]
	}
	return a
}

func CONSUMING(desc string, subAction ...string) LoggerAction {
	return newAction(Consuming, desc, subAction...)
}

func PRODUCING(desc string, subAction ...string) LoggerAction {
	return newAction(Producing, desc, subAction...)
}

func PRODUCED(desc string, subAction ...string) LoggerAction {
	return newAction(Produced, desc, subAction...)
}

func INBOUND(desc string, subAction ...string) LoggerAction {
	return newAction(Inbound, desc, subAction...)
}

func OUTBOUND(desc string, subAction ...string) LoggerAction {
	return newAction(Outbound, desc, subAction...)
}

func APP_LOGIC(desc string, subAction ...string) LoggerAction {
	return newAction(AppLogic, desc, subAction...)
}

func HTTP_REQUEST(desc string, subAction ...string) LoggerAction {
	return newAction(HttpRequest, desc, subAction...)
}

func HTTP_RESPONSE(desc string, subAction ...string) LoggerAction {
	return newAction(HttpResponse, desc, subAction...)
}

func EXCEPTION(desc string, subAction ...string) LoggerAction {
	return newAction(Exception, desc, subAction...)
}

func SYSTEM(desc string, subAction ...string) LoggerAction {
	return newAction(System, desc, subAction...)
}

func DB_REQUEST(operation DBAction, desc string) LoggerAction {
	return newAction(DbRequest, desc, string(operation))
}

func DB_RESPONSE(operation DBAction, desc string) LoggerAction {
	return newAction(DbResponse, desc, string(operation))
}
