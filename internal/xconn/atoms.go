package xconn

// Property names the panel reads, writes or reacts to.
const (
	WMState    = "WM_STATE"
	WMName     = "WM_NAME"
	WMIconName = "WM_ICON_NAME"
	WMHints    = "WM_HINTS"

	NetNumberOfDesktops = "_NET_NUMBER_OF_DESKTOPS"
	NetDesktopNames     = "_NET_DESKTOP_NAMES"
	NetCurrentDesktop   = "_NET_CURRENT_DESKTOP"
	NetClientList       = "_NET_CLIENT_LIST"
	NetActiveWindow     = "_NET_ACTIVE_WINDOW"
	NetWorkarea         = "_NET_WORKAREA"

	NetWMName            = "_NET_WM_NAME"
	NetWMVisibleName     = "_NET_WM_VISIBLE_NAME"
	NetWMIconName        = "_NET_WM_ICON_NAME"
	NetWMVisibleIconName = "_NET_WM_VISIBLE_ICON_NAME"
	NetWMIcon            = "_NET_WM_ICON"
	NetWMDesktop         = "_NET_WM_DESKTOP"
	NetWMState           = "_NET_WM_STATE"
	NetWMWindowType      = "_NET_WM_WINDOW_TYPE"

	NetWMStateSkipTaskbar = "_NET_WM_STATE_SKIP_TASKBAR"
	NetWMStateHidden      = "_NET_WM_STATE_HIDDEN"

	NetWMWindowTypeDock    = "_NET_WM_WINDOW_TYPE_DOCK"
	NetWMWindowTypeDesktop = "_NET_WM_WINDOW_TYPE_DESKTOP"

	XRootPmapID = "_XROOTPMAP_ID"
)
