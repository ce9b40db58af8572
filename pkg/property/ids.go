package property

import "github.com/cuemby/portod/pkg/container"

// Property ids, assigned sequentially at registration order below. These
// back the ExplicitlySet bitmap and persistence's "a record exists"
// reconstruction rule; they are stable for the lifetime of one daemon
// binary but are not required to match any other daemon build.
const (
	idNone container.PropertyID = container.None
	idCommand container.PropertyID = iota
	idUser
	idGroup
	idOwnerUser
	idOwnerGroup
	idVirtMode
	idEnablePorto
	idCapabilities
	idCapabilitiesAmbient
	idPrivate
	idMemoryLimit
	idMemoryGuarantee
	idAnonLimit
	idDirtyLimit
	idHugetlbLimit
	idCpuLimit
	idCpuGuarantee
	idCpuSet
	idCpuPolicy
	idIoPolicy
	idIoLimit
	idIoOpsLimit
	idThreadLimit
	idUlimit
	idCwd
	idRoot
	idRootReadonly
	idUmask
	idHostname
	idBindDns
	idIsolate
	idBind
	idEnv
	idDevices
	idResolvConf
	idStdinPath
	idStdoutPath
	idStderrPath
	idStdoutLimit
	idPortoNamespace
	idNet
	idIp
	idDefaultGw
	idNetGuarantee
	idNetLimit
	idNetPriority
	idNetTos
	idRespawn
	idMaxRespawns
	idWeak
	idAgingTime
	idOomIsFatal
	idState
	idExitStatus
	idOomKilled
	idRawRootPid
	idRawSeizePid
	idRawLoopDev
	idRawStartTime
	idRawDeathTime
	idRespawnCount
)
