package gen

// Helper names a shared support function of the emitted program.
// Fragments declare the helpers they call; the assembler computes the
// union and emits each definition exactly once, in pool order.
type Helper string

// Shared helpers of the emitted program.
const (
	HelperMoscowTime       Helper = "get_moscow_time"
	HelperReplaceVariables Helper = "replace_variables_in_text"
	HelperInitDatabase     Helper = "init_database"
	HelperSaveUserToDB     Helper = "save_user_to_db"
	HelperSaveUserData     Helper = "save_user_data"
	HelperGetUserData      Helper = "get_user_data"
	HelperIsAdmin          Helper = "is_admin"
	HelperSetWaitingInput  Helper = "set_waiting_input"
	HelperValidateInput    Helper = "validate_input"
	HelperNormalizeMsToken Helper = "normalize_multi_select_token"
	HelperMsKeyboard       Helper = "build_multi_select_keyboard"
	HelperLocationKeyboard Helper = "location_request_keyboard"
	HelperContactKeyboard  Helper = "contact_request_keyboard"
	HelperAllUserIDs       Helper = "get_all_user_ids"
	HelperUpdateUserField  Helper = "update_user_field"
)

// helperDef couples a helper with its transitive requirements and its
// definition body. Definitions render at indent level zero.
type helperDef struct {
	name Helper
	deps []Helper
	body func(c *Config, f *Fragment)
}

// helperPool lists every helper in canonical emission order. The
// assembler walks this slice, not the requirement map, so two runs
// over the same graph emit the pool identically.
var helperPool = []helperDef{
	{
		name: HelperMoscowTime,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def get_moscow_time():")
			f.At(1, `return datetime.now(timezone(timedelta(hours=3))).strftime("%Y-%m-%d %H:%M:%S")`)
		},
	},
	{
		name: HelperReplaceVariables,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def replace_variables_in_text(text, user_id):")
			f.At(1, "data = USER_DATA.get(user_id, {})")
			f.At(1, "for key, value in data.items():")
			f.At(2, `text = text.replace("{" + key + "}", str(value))`)
			f.At(1, "return text")
		},
	},
	{
		name: HelperInitDatabase,
		body: func(c *Config, f *Fragment) {
			f.At(0, "async def init_database():")
			f.At(1, "async with aiosqlite.connect(DB_PATH) as db:")
			f.At(2, `await db.execute(`)
			f.At(3, `"CREATE TABLE IF NOT EXISTS users (user_id INTEGER PRIMARY KEY, username TEXT,"`)
			f.At(3, `" first_name TEXT, role TEXT DEFAULT 'user', banned INTEGER DEFAULT 0, registered_at TEXT)"`)
			f.At(2, `)`)
			f.At(2, `await db.execute(`)
			f.At(3, `"CREATE TABLE IF NOT EXISTS user_data (user_id INTEGER, key TEXT, value TEXT,"`)
			f.At(3, `" updated_at TEXT, PRIMARY KEY (user_id, key))"`)
			f.At(2, `)`)
			f.At(2, "await db.commit()")
		},
	},
	{
		name: HelperSaveUserToDB,
		deps: []Helper{HelperMoscowTime},
		body: func(c *Config, f *Fragment) {
			f.At(0, "async def save_user_to_db(user):")
			if !c.Persistence {
				f.At(1, "USER_DATA.setdefault(user.id, {})")
				return
			}
			f.At(1, "USER_DATA.setdefault(user.id, {})")
			f.At(1, "try:")
			f.At(2, "async with aiosqlite.connect(DB_PATH) as db:")
			f.At(3, "await db.execute(")
			f.At(4, `"INSERT OR IGNORE INTO users (user_id, username, first_name, registered_at) VALUES (?, ?, ?, ?)",`)
			f.At(4, `(user.id, user.username or "", user.first_name or "", get_moscow_time()),`)
			f.At(3, ")")
			f.At(3, "await db.commit()")
			f.At(1, "except Exception:")
			f.At(2, `logging.exception("user save failed, continuing with transient state")`)
		},
	},
	{
		name: HelperSaveUserData,
		deps: []Helper{HelperMoscowTime},
		body: func(c *Config, f *Fragment) {
			f.At(0, "async def save_user_data(user_id, key, value):")
			if !c.Persistence {
				f.At(1, "USER_DATA.setdefault(user_id, {})[key] = value")
				return
			}
			// Persist first; the transient copy is written regardless so a
			// failed durable write downgrades instead of losing the value.
			f.At(1, "try:")
			f.At(2, "async with aiosqlite.connect(DB_PATH) as db:")
			f.At(3, "await db.execute(")
			f.At(4, `"INSERT INTO user_data (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)"`)
			f.At(4, `" ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",`)
			f.At(4, "(user_id, key, str(value), get_moscow_time()),")
			f.At(3, ")")
			f.At(3, "await db.commit()")
			f.At(1, "except Exception:")
			f.At(2, `logging.exception("data save failed, keeping value in transient state only")`)
			f.At(1, "USER_DATA.setdefault(user_id, {})[key] = value")
		},
	},
	{
		name: HelperGetUserData,
		body: func(c *Config, f *Fragment) {
			f.At(0, `def get_user_data(user_id, key, default=""):`)
			f.At(1, "return USER_DATA.get(user_id, {}).get(key, default)")
		},
	},
	{
		name: HelperIsAdmin,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def is_admin(user_id):")
			f.At(1, "return user_id in ADMIN_IDS")
		},
	},
	{
		name: HelperSetWaitingInput,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def set_waiting_input(user_id, record):")
			f.At(1, `if record.get("timeout"):`)
			f.At(2, `record["expires_at"] = asyncio.get_event_loop().time() + record["timeout"]`)
			f.At(1, "WAITING_INPUT[user_id] = record")
		},
	},
	{
		name: HelperValidateInput,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def validate_input(text, record):")
			f.At(1, `"""Return an error message, or None when the input is valid."""`)
			f.At(1, `if record.get("required") and not text:`)
			f.At(2, `return "Это поле обязательно для заполнения."`)
			f.At(1, `min_length = record.get("min_length", 0)`)
			f.At(1, `max_length = record.get("max_length", 0)`)
			f.At(1, "if min_length and len(text) < min_length:")
			f.At(2, `return "Минимальная длина: %d" % min_length`)
			f.At(1, "if max_length and len(text) > max_length:")
			f.At(2, `return "Максимальная длина: %d" % max_length`)
			f.At(1, `kind = record.get("validation", "text")`)
			f.At(1, `if kind == "number" and not re.fullmatch(r"-?\d+(\.\d+)?", text):`)
			f.At(2, `return "Введите число"`)
			f.At(1, `if kind == "email" and not re.fullmatch(r"[^@\s]+@[^@\s]+\.[^@\s]+", text):`)
			f.At(2, `return "Введите корректный email"`)
			f.At(1, `if kind == "phone" and not re.fullmatch(r"\+?\d[\d\s\-()]{5,}", text):`)
			f.At(2, `return "Введите корректный номер телефона"`)
			f.At(1, "return None")
		},
	},
	{
		name: HelperNormalizeMsToken,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def normalize_multi_select_token(data):")
			f.At(1, `"""Parse current and legacy multi-select callback formats into one shape."""`)
			f.At(1, `for prefix in ("multi_select_done_", "done_"):`)
			f.At(2, "if data.startswith(prefix):")
			f.At(3, "return data[len(prefix):], None, True")
			f.At(1, `for prefix in ("multi_select_", "ms_"):`)
			f.At(2, "if data.startswith(prefix):")
			f.At(3, "rest = data[len(prefix):]")
			f.At(3, `token, sep, index = rest.rpartition("_")`)
			f.At(3, "if sep and index.isdigit():")
			f.At(4, "return token, int(index), False")
			f.At(1, "return None, None, False")
		},
	},
	{
		name: HelperMsKeyboard,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def build_multi_select_keyboard(token, options, selected, done_text):")
			f.At(1, "rows = []")
			f.At(1, "for i, option in enumerate(options):")
			f.At(2, `mark = "✅ " if option in selected else ""`)
			f.At(2, "rows.append([InlineKeyboardButton(")
			f.At(3, `text=mark + option, callback_data="ms_%s_%d" % (token, i),`)
			f.At(2, ")])")
			f.At(1, "rows.append([InlineKeyboardButton(")
			f.At(2, `text=done_text, callback_data="done_%s" % token,`)
			f.At(1, ")])")
			f.At(1, "return InlineKeyboardMarkup(inline_keyboard=rows)")
		},
	},
	{
		name: HelperLocationKeyboard,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def location_request_keyboard(text):")
			f.At(1, "return ReplyKeyboardMarkup(")
			f.At(2, "keyboard=[[KeyboardButton(text=text, request_location=True)]],")
			f.At(2, "resize_keyboard=True,")
			f.At(2, "one_time_keyboard=True,")
			f.At(1, ")")
		},
	},
	{
		name: HelperContactKeyboard,
		body: func(c *Config, f *Fragment) {
			f.At(0, "def contact_request_keyboard(text):")
			f.At(1, "return ReplyKeyboardMarkup(")
			f.At(2, "keyboard=[[KeyboardButton(text=text, request_contact=True)]],")
			f.At(2, "resize_keyboard=True,")
			f.At(2, "one_time_keyboard=True,")
			f.At(1, ")")
		},
	},
	{
		name: HelperAllUserIDs,
		body: func(c *Config, f *Fragment) {
			f.At(0, "async def get_all_user_ids():")
			if !c.Persistence {
				f.At(1, "return list(USER_DATA.keys())")
				return
			}
			f.At(1, "try:")
			f.At(2, "async with aiosqlite.connect(DB_PATH) as db:")
			f.At(3, `async with db.execute("SELECT user_id FROM users WHERE banned = 0") as cursor:`)
			f.At(4, "return [row[0] async for row in cursor]")
			f.At(1, "except Exception:")
			f.At(2, `logging.exception("user list unavailable, falling back to active users")`)
			f.At(2, "return list(USER_DATA.keys())")
		},
	},
	{
		name: HelperUpdateUserField,
		body: func(c *Config, f *Fragment) {
			f.At(0, "async def update_user_field(user_id, field, value):")
			if !c.Persistence {
				f.At(1, `USER_DATA.setdefault(user_id, {})["__" + field] = value`)
				f.At(1, "return True")
				return
			}
			f.At(1, "try:")
			f.At(2, "async with aiosqlite.connect(DB_PATH) as db:")
			f.At(3, `await db.execute("UPDATE users SET %s = ? WHERE user_id = ?" % field, (value, user_id))`)
			f.At(3, "await db.commit()")
			f.At(2, "return True")
			f.At(1, "except Exception:")
			f.At(2, `logging.exception("user update failed")`)
			f.At(2, "return False")
		},
	},
}

// requiredHelpers expands a helper set to its transitive closure and
// returns the result in pool order.
func requiredHelpers(requested []Helper) []Helper {
	want := make(map[Helper]bool)
	var expand func(h Helper)
	expand = func(h Helper) {
		if want[h] {
			return
		}
		want[h] = true
		for _, def := range helperPool {
			if def.name == h {
				for _, dep := range def.deps {
					expand(dep)
				}
			}
		}
	}
	for _, h := range requested {
		expand(h)
	}
	out := make([]Helper, 0, len(want))
	for _, def := range helperPool {
		if want[def.name] {
			out = append(out, def.name)
		}
	}
	return out
}

// renderHelpers emits the definitions for the given helpers, each
// exactly once, separated by blank lines.
func renderHelpers(c *Config, helpers []Helper) *Fragment {
	f := NewFragment(0)
	for i, h := range helpers {
		for _, def := range helperPool {
			if def.name == h {
				if i > 0 {
					f.Blank()
					f.Blank()
				}
				def.body(c, f)
			}
		}
	}
	return f
}
