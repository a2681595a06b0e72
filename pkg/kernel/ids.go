package kernel

type FlowID string

func NewFlowID(id string) FlowID { return FlowID(id) }
func (f FlowID) String() string  { return string(f) }
func (f FlowID) IsEmpty() bool   { return string(f) == "" }

type NodeID string

func NewNodeID(id string) NodeID { return NodeID(id) }
func (n NodeID) String() string  { return string(n) }
func (n NodeID) IsEmpty() bool   { return string(n) == "" }

type ConnectionID string

func NewConnectionID(id string) ConnectionID { return ConnectionID(id) }
func (c ConnectionID) String() string        { return string(c) }
func (c ConnectionID) IsEmpty() bool         { return string(c) == "" }

type SessionID string

func NewSessionID(id string) SessionID { return SessionID(id) }
func (s SessionID) String() string     { return string(s) }
func (s SessionID) IsEmpty() bool      { return string(s) == "" }

type MessageID string

func NewMessageID(id string) MessageID { return MessageID(id) }
func (m MessageID) String() string     { return string(m) }
func (m MessageID) IsEmpty() bool      { return string(m) == "" }
