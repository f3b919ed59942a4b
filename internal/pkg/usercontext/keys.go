package usercontext

// Shared Locals key used across handlers and middlewares
const KeyUserContext = "USER_CONTEXT"
