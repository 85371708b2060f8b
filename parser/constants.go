package parser

// MaxIncludeDepth bounds nested INCLUDE directives, guarding against a
// circular include chain running away.
const MaxIncludeDepth = 16
