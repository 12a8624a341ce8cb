package session

// Messages holds the user-facing texts shown by the controllers.
type Messages struct {
	MissingCredentials string
	SigningUp          string
	SignedUp           string
	SignupFailed       string
	LoggingIn          string
	LoggedIn           string
	LoginFailed        string
	LoggedOut          string
	Unexpected         string

	Processing  string
	Pending     string
	SignInFirst string
	AskFailed   string
}

// ArabicMessages returns the default message set.
func ArabicMessages() Messages {
	return Messages{
		MissingCredentials: "يرجى إدخال البريد وكلمة المرور",
		SigningUp:          "جاري إنشاء الحساب...",
		SignedUp:           "تم إنشاء الحساب وتسجيل الدخول",
		SignupFailed:       "فشل إنشاء الحساب",
		LoggingIn:          "جاري تسجيل الدخول...",
		LoggedIn:           "تم تسجيل الدخول",
		LoginFailed:        "بيانات الدخول غير صحيحة",
		LoggedOut:          "تم تسجيل الخروج",
		Unexpected:         "خطأ غير متوقع",

		Processing:  "جاري المعالجة...",
		Pending:     "... جاري جلب النصيحة",
		SignInFirst: "الرجاء تسجيل الدخول أولاً",
		AskFailed:   "حدث خطأ غير متوقع. حاول مجدداً.",
	}
}

// EnglishMessages returns the English message set.
func EnglishMessages() Messages {
	return Messages{
		MissingCredentials: "Please enter your email and password",
		SigningUp:          "Creating account...",
		SignedUp:           "Account created and signed in",
		SignupFailed:       "Sign up failed",
		LoggingIn:          "Signing in...",
		LoggedIn:           "Signed in",
		LoginFailed:        "Invalid credentials",
		LoggedOut:          "Signed out",
		Unexpected:         "Unexpected error",

		Processing:  "Processing...",
		Pending:     "... fetching advice",
		SignInFirst: "Please sign in first",
		AskFailed:   "Something went wrong. Please try again.",
	}
}

// MessagesFor returns the message set for a language code ("ar" or "en").
func MessagesFor(lang string) Messages {
	if lang == "en" {
		return EnglishMessages()
	}
	return ArabicMessages()
}
